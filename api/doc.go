// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package api is a small GL-flavoured command set built on the glthread
// engine.
//
// It is not a GL implementation. It exists to drive the engine end to end
// with the kinds of calls that make offloading interesting: state setters
// that merge in place, buffer uploads whose payload may not fit a batch,
// shader compilation that is expensive enough to want on another thread,
// display lists, and getters that force a synchronization.
//
// # Client and Server
//
// A Context is the client half. Every entry point either encodes a record
// into the engine's current batch or, when the engine is disabled, encodes
// it into a scratch record and executes it at once. Both paths end in
// State.Execute, so the observable results are the same.
//
// A State is the server half and implements glthread.Dispatcher. Its Lock
// takes the named-object lock and then the texture lock; the engine holds
// both for a whole batch.
//
// # Synchronization
//
// Getters call FinishBefore, or wait on a batch mark when only one kind of
// change matters (GetProgramLinkStatus and IsList), and then read the
// server state under its locks.
package api
