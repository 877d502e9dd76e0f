package oclstat

// ImageFormat is a decoded cl_image_format.
type ImageFormat struct {
	ChannelOrder    uint32
	ChannelDataType uint32
}

// ImageDesc is a decoded cl_image_desc.
type ImageDesc struct {
	Type       uint32
	Width      uint64
	Height     uint64
	Depth      uint64
	ArraySize  uint64
	RowPitch   uint64
	SlicePitch uint64
}

// cl_mem_object_type values.
const (
	MemObjectBuffer       uint32 = 0x10F0
	MemObjectImage2D      uint32 = 0x10F1
	MemObjectImage3D      uint32 = 0x10F2
	MemObjectImage2DArray uint32 = 0x10F3
	MemObjectImage1D      uint32 = 0x10F4
	MemObjectImage1DArray uint32 = 0x10F5
	MemObjectImage1DBuf   uint32 = 0x10F6
)

// BufferCreateTypeRegion is CL_BUFFER_CREATE_TYPE_REGION.
const BufferCreateTypeRegion uint32 = 0x1220

// channelCounts maps cl_channel_order to the number of channels.
var channelCounts = map[uint32]uint64{
	0x10B0: 1, // CL_R
	0x10B1: 1, // CL_A
	0x10B2: 2, // CL_RG
	0x10B3: 2, // CL_RA
	0x10B4: 3, // CL_RGB
	0x10B5: 4, // CL_RGBA
	0x10B6: 4, // CL_BGRA
	0x10B7: 4, // CL_ARGB
	0x10B8: 1, // CL_INTENSITY
	0x10B9: 1, // CL_LUMINANCE
	0x10BA: 2, // CL_Rx
	0x10BB: 3, // CL_RGx
	0x10BC: 4, // CL_RGBx
	0x10BD: 1, // CL_DEPTH
	0x10BE: 2, // CL_DEPTH_STENCIL
	0x10BF: 3, // CL_sRGB
	0x10C0: 4, // CL_sRGBx
	0x10C1: 4, // CL_sRGBA
	0x10C2: 4, // CL_sBGRA
	0x10C3: 4, // CL_ABGR
}

// channelSizes maps cl_channel_type to bytes per channel.
var channelSizes = map[uint32]uint64{
	0x10D0: 1, // CL_SNORM_INT8
	0x10D1: 2, // CL_SNORM_INT16
	0x10D2: 1, // CL_UNORM_INT8
	0x10D3: 2, // CL_UNORM_INT16
	0x10D7: 1, // CL_SIGNED_INT8
	0x10D8: 2, // CL_SIGNED_INT16
	0x10D9: 4, // CL_SIGNED_INT32
	0x10DA: 1, // CL_UNSIGNED_INT8
	0x10DB: 2, // CL_UNSIGNED_INT16
	0x10DC: 4, // CL_UNSIGNED_INT32
	0x10DD: 2, // CL_HALF_FLOAT
	0x10DE: 4, // CL_FLOAT
	0x10DF: 4, // CL_UNORM_INT24, stored in 32 bits
}

// packedSizes maps packed cl_channel_type values to bytes per pixel,
// independent of the channel order.
var packedSizes = map[uint32]uint64{
	0x10D4: 2, // CL_UNORM_SHORT_565
	0x10D5: 2, // CL_UNORM_SHORT_555
	0x10D6: 4, // CL_UNORM_INT_101010
	0x10E0: 4, // CL_UNORM_INT_101010_2
}

// PixelSize returns the bytes per pixel of a format, or 0 when the
// format is unknown.
func (f ImageFormat) PixelSize() uint64 {
	if n, ok := packedSizes[f.ChannelDataType]; ok {
		return n
	}
	channels, ok := channelCounts[f.ChannelOrder]
	if !ok {
		return 0
	}
	return channels * channelSizes[f.ChannelDataType]
}

// EstimateImageSize returns a lower bound of an image's footprint: the
// element count of the declared dimensions times the pixel size, or
// times one when the format is unknown. Row and slice padding, mip levels
// and driver overhead are not counted.
func EstimateImageSize(format *ImageFormat, desc ImageDesc) uint64 {
	w := max(desc.Width, 1)
	h, d, n := uint64(1), uint64(1), uint64(1)
	switch desc.Type {
	case MemObjectImage2D:
		h = max(desc.Height, 1)
	case MemObjectImage3D:
		h, d = max(desc.Height, 1), max(desc.Depth, 1)
	case MemObjectImage2DArray:
		h, n = max(desc.Height, 1), max(desc.ArraySize, 1)
	case MemObjectImage1DArray:
		n = max(desc.ArraySize, 1)
	case MemObjectImage1D, MemObjectImage1DBuf:
	default:
		h, d = max(desc.Height, 1), max(desc.Depth, 1)
	}
	px := uint64(1)
	if format != nil {
		if s := format.PixelSize(); s > 0 {
			px = s
		}
	}
	return w * h * d * n * px
}

// imageFlags returns the record flags for an image of the given type.
func imageFlags(desc ImageDesc) RecordFlags {
	if desc.Type == MemObjectImage1DBuf {
		return FlagImage | FlagAlias
	}
	return FlagImage
}
