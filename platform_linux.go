package oclstat

// DefaultLibrary is the ICD loader the shim forwards to.
const DefaultLibrary = "libOpenCL.so.1"
