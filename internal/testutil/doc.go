// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test doubles shared across packages, most notably
// FakeClock for driving time-dependent loops deterministically.
package testutil
