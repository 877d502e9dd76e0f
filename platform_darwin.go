package oclstat

// DefaultLibrary is the OpenCL framework the shim forwards to.
const DefaultLibrary = "/System/Library/Frameworks/OpenCL.framework/OpenCL"
