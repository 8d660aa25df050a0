// Package config loads the workspace configuration file.
//
// A workspace is configured by an optional anvil.hcl at its root:
//
//	workspace {
//	  source          = "src"
//	  build           = "build"
//	  metadata        = "meta"
//	  install         = "install"
//	  isolate_install = false
//	  extra_args      = ["PYTHON_EXECUTABLE=/usr/bin/python3"]
//	  env = {
//	    CC = "gcc"
//	  }
//	}
//
// Relative directories resolve against the workspace root. Environment
// variables are available to expressions through the env object, e.g.
// source = "${env.HOME}/ws/src". A missing file yields the defaults.
package config
