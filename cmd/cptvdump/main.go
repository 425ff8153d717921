/*
NAME
  main.go

DESCRIPTION
  cptvdump is a bare-bones program that opens a CPTV file, prints its
  stream metadata, and reports the frame count and a histogram of the
  bit-width each frame's largest pixel value needs. It is a thin consumer of the cptv package and does not
  influence the on-disk format.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements cptvdump, a small inspection tool for CPTV
// files.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/cptv"
)

// Logging related constants.
const (
	logPath      = "cptvdump.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

func main() {
	inPath := flag.String("in", "", "Path to the CPTV file to inspect.")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	l := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if *inPath == "" {
		l.Fatal("no input file given, use -in")
	}

	if err := run(*inPath, l); err != nil {
		l.Fatal("cptvdump failed", "error", err)
	}
}

func run(path string, l logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := cptv.NewReader(f, l)
	if err != nil {
		return err
	}

	meta := r.Metadata()
	l.Info("stream metadata",
		"version", meta.Version,
		"timestamp", meta.Timestamp,
		"x_resolution", meta.XResolution,
		"y_resolution", meta.YResolution,
		"device_name", string(meta.DeviceName),
		"device_id", meta.DeviceID,
		"has_background_frame", meta.HasBackgroundFrame,
	)

	var count int
	widths := map[int]int{}
	for {
		frame, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		count++
		widths[bitWidthOf(frame)]++
	}

	l.Info("frame summary", "count", count, "bit_width_histogram", widths)
	return nil
}

// bitWidthOf reports the smallest of 8, 12 and 16 bits that holds the
// frame's largest pixel value as an unsigned number. It is derived
// from the decoded pixels, not from the bit-width stored with the
// frame, and is used only for the dump's histogram.
func bitWidthOf(f cptv.Frame) int {
	var max uint16
	for _, p := range f.Pix {
		if p > max {
			max = p
		}
	}
	switch {
	case max < 1<<8:
		return 8
	case max < 1<<12:
		return 12
	default:
		return 16
	}
}
