// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/upscaler"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNilProvider is returned when a nil device provider is passed.
	ErrNilProvider = errors.New("wgpu: device provider is nil")

	// ErrNoHALDevice is returned when a provider does not expose HAL types.
	ErrNoHALDevice = errors.New("wgpu: provider does not expose hal.Device and hal.Queue")
)

// Queue is the part of hal.Queue used to submit work.
type Queue interface {
	Submit(commandBuffers []hal.CommandBuffer, fence hal.Fence, fenceValue uint64) error
}

// Submitter submits command buffers and records their completion fences on
// the ContextStates they use.
//
// A Submitter is the single producer for the activity queues it pushes to:
// call Submit from one goroutine only.
type Submitter struct {
	device Device
	queue  Queue
}

// NewSubmitter creates a Submitter on device and queue.
func NewSubmitter(device Device, queue Queue) *Submitter {
	return &Submitter{device: device, queue: queue}
}

// NewSubmitterFromProvider creates a Submitter on the HAL device shared by
// provider. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewSubmitterFromProvider(provider gpucontext.DeviceProvider) (*Submitter, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHALDevice, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHALDevice, hp.HalQueue())
	}

	upscaler.Logger().Debug("wgpu: submitter using shared GPU device",
		"surface_format", provider.SurfaceFormat())
	return NewSubmitter(device, queue), nil
}

// Submit submits commandBuffers with a new fence and pushes the fence into
// each of states. States that share the submission share the fence; it is
// destroyed after every state has drained or dropped it.
//
// If submission fails, no fence is pushed.
func (s *Submitter) Submit(commandBuffers []hal.CommandBuffer, states ...*upscaler.ContextState) error {
	halFence, err := s.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	if err := s.queue.Submit(commandBuffers, halFence, fenceSignalValue); err != nil {
		s.device.DestroyFence(halFence)
		return fmt.Errorf("wgpu: submit %d command buffers: %w", len(commandBuffers), err)
	}

	fence := NewFence(s.device, halFence, fenceSignalValue)
	for _, state := range states {
		if state == nil {
			continue
		}
		fence.AddRef()
		state.PushActivity(fence)
	}
	// Drop the submitter's own reference.
	fence.Release()
	return nil
}
