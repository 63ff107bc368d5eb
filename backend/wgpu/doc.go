// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu tracks upscaler GPU work submitted through gogpu/wgpu HAL.
//
// Submitter is the producer role of a ContextState activity queue: it submits
// command buffers to a hal.Queue with a fresh hal.Fence and pushes that fence
// into every ContextState the work touches. The orchestration goroutine later
// polls the ContextState, which checks the fence with a zero-timeout
// hal.Device.Wait and destroys it once every state has drained it.
//
// The device is normally shared with the host application:
//
//	sub, err := wgpu.NewSubmitterFromProvider(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	// GPU submission goroutine
//	if err := sub.Submit(cmds, history.Context()); err != nil {
//	    return err
//	}
package wgpu
