// Package link runs a dlcf channel as a frame endpoint inside a control loop.
//
// An Endpoint owns one dlcf.Channel and its transport. Frames are queued with
// Send from any goroutine and received frames are delivered to a
// FrameHandler. All byte level work happens in Control, which a
// framework.Loop calls every tick.
package link
