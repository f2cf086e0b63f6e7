// SPDX-License-Identifier: MPL-2.0

// Package probefile loads probe definitions from CUE files validated against
// the embedded #Probes schema.
//
//	probes: [
//		{name: "db", check: "tcp", args: address: "localhost:5432", timeout: "30s"},
//		{name: "ready", check: "file-exists", args: path: "/tmp/ready", count: 10},
//	]
package probefile
