// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"github.com/gogpu/layercomp/backend"
	"github.com/gogpu/layercomp/device"
)

func init() {
	backend.Register(backend.WGPU, func() (device.Device, error) {
		d, err := New()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
