// Package dlcf provides Data Link Control Framing.
//
// DLCF turns a raw byte stream (e.g. a UART) into delimited PDUs and back,
// using SOF/EOF delimiters and ESC byte-stuffing.
//
// A Channel holds independent transmit and receive state machines. Both are
// driven one byte at a time and never block: NextTxByte pulls at most one
// stuffed byte, ProcessRxByte consumes exactly one received byte, and Step
// moves one byte per direction through the bound transport. Step is meant
// to be called from a single polling loop or interrupt context per channel;
// a Channel is not safe for concurrent use.
//
// Frame check sequences are not part of framing; see package fcs.
//
// Wire format:
//
//	SOF { data | ESC substitute }* EOF
//
// where substitute is Config.EscBytes[i] for a payload byte equal to
// Config.CtlBytes[i].
package dlcf
