// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !windows

package health

import (
	"fmt"
	"syscall"
)

// getDiskUsage returns totalMB, freeMB (available to unprivileged users) and
// used percentage for the file system holding path
func getDiskUsage(path string) (float64, float64, float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get disk stats: %w", err)
	}

	bsize := uint64(stat.Bsize)
	totalBytes := stat.Blocks * bsize
	availBytes := stat.Bavail * bsize
	usedBytes := totalBytes - stat.Bfree*bsize

	const mb = 1024 * 1024
	usedPercent := 0.0
	if totalBytes > 0 {
		usedPercent = float64(usedBytes) / float64(totalBytes) * 100
	}

	return float64(totalBytes) / mb, float64(availBytes) / mb, usedPercent, nil
}
