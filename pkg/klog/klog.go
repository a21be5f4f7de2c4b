/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package klog

import (
	"flag"
	"strconv"

	"k8s.io/klog/v2"
)

// Init initializes the klog logging system. Logs are written to the given
// file and mirrored to stderr; headers are skipped to keep lines compact.
// A zero logFileSize keeps klog's default rotation size.
func Init(logfilePath string, logFileSize int) error {
	klog.InitFlags(nil)
	if err := flag.Set("log_file", logfilePath); err != nil {
		return err
	}
	if err := flag.Set("alsologtostderr", "true"); err != nil {
		return err
	}
	if err := flag.Set("logtostderr", "false"); err != nil {
		return err
	}
	if err := flag.Set("skip_log_headers", "true"); err != nil {
		return err
	}
	if logFileSize != 0 {
		if err := flag.Set("log_file_max_size", strconv.Itoa(logFileSize)); err != nil {
			return err
		}
	}
	flag.Parse()
	return nil
}
