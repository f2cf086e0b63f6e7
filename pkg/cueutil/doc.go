// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities for the config file
// and probe files:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// # Usage
//
//	//go:embed probefile_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[File](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Probes",
//	    cueutil.WithFilename("probes.cue"),
//	)
//	if err != nil {
//	    return nil, err  // *ParseError with the CUE path of every problem
//	}
//	return result.Value, nil
package cueutil
