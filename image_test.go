package oclstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	rgbaUnorm8 = &ImageFormat{ChannelOrder: 0x10B5, ChannelDataType: 0x10D2}
	rFloat     = &ImageFormat{ChannelOrder: 0x10B0, ChannelDataType: 0x10DE}
	rgb565     = &ImageFormat{ChannelOrder: 0x10B4, ChannelDataType: 0x10D4}
)

func TestPixelSize(t *testing.T) {
	assert.Equal(t, uint64(4), rgbaUnorm8.PixelSize())
	assert.Equal(t, uint64(4), rFloat.PixelSize())
	assert.Equal(t, uint64(2), rgb565.PixelSize())
	assert.Zero(t, ImageFormat{ChannelOrder: 0xFFFF, ChannelDataType: 0x10D2}.PixelSize())
	assert.Zero(t, ImageFormat{ChannelOrder: 0x10B5, ChannelDataType: 0xFFFF}.PixelSize())
}

func TestEstimateImageSize(t *testing.T) {
	tests := []struct {
		name   string
		format *ImageFormat
		desc   ImageDesc
		want   uint64
	}{
		{"2d", rgbaUnorm8, ImageDesc{Type: MemObjectImage2D, Width: 640, Height: 480}, 640 * 480 * 4},
		{"2d ignores depth", rgbaUnorm8, ImageDesc{Type: MemObjectImage2D, Width: 4, Height: 4, Depth: 9}, 64},
		{"3d", rFloat, ImageDesc{Type: MemObjectImage3D, Width: 8, Height: 8, Depth: 8}, 8 * 8 * 8 * 4},
		{"2d array", rgbaUnorm8, ImageDesc{Type: MemObjectImage2DArray, Width: 16, Height: 16, ArraySize: 3}, 16 * 16 * 3 * 4},
		{"1d", rFloat, ImageDesc{Type: MemObjectImage1D, Width: 100, Height: 7}, 400},
		{"1d array", rFloat, ImageDesc{Type: MemObjectImage1DArray, Width: 100, ArraySize: 2}, 800},
		{"1d buffer", rgb565, ImageDesc{Type: MemObjectImage1DBuf, Width: 10}, 20},
		{"unknown format", nil, ImageDesc{Type: MemObjectImage2D, Width: 10, Height: 10}, 100},
		{"zero dims", rgbaUnorm8, ImageDesc{Type: MemObjectImage2D}, 4},
		{"pitch is ignored", rgbaUnorm8, ImageDesc{Type: MemObjectImage2D, Width: 3, Height: 2, RowPitch: 64}, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateImageSize(tt.format, tt.desc))
		})
	}
}

func TestImageFlags(t *testing.T) {
	assert.Equal(t, FlagImage, imageFlags(ImageDesc{Type: MemObjectImage2D}))
	assert.Equal(t, FlagImage|FlagAlias, imageFlags(ImageDesc{Type: MemObjectImage1DBuf}))
}
