package oclstat_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimwip/oclstat"
)

func TestCollector(t *testing.T) {
	tr, _ := newTracker(t)
	ctx, _ := tr.CreateContext(oclstat.ContextArgs{})
	_, _ = tr.CreateBuffer(oclstat.BufferArgs{Context: ctx, Size: 1048576})
	img, _ := tr.CreateImage2D(oclstat.Image2DArgs{
		Context: ctx,
		Format:  &oclstat.ImageFormat{ChannelOrder: 0x10B5, ChannelDataType: 0x10D2},
		Width:   8,
		Height:  8,
	})
	tr.RetainMemObject(img)
	tr.ReleaseKernel(0x99)

	c := oclstat.NewCollector(tr)

	expected := `
# HELP oclstat_alive_resources OpenCL objects with a reference count above zero.
# TYPE oclstat_alive_resources gauge
oclstat_alive_resources{category="command_queue"} 0
oclstat_alive_resources{category="context"} 1
oclstat_alive_resources{category="kernel"} 0
oclstat_alive_resources{category="mem_object"} 2
oclstat_alive_resources{category="program"} 0
oclstat_alive_resources{category="sampler"} 0
# HELP oclstat_leaked_bytes Bytes held by alive memory objects; a lower bound when images are alive.
# TYPE oclstat_leaked_bytes gauge
oclstat_leaked_bytes 1.048832e+06
# HELP oclstat_estimated_image_bytes Estimated bytes held by alive images.
# TYPE oclstat_estimated_image_bytes gauge
oclstat_estimated_image_bytes 256
# HELP oclstat_protocol_violations_total Retain, release or create calls that did not match the tracked state.
# TYPE oclstat_protocol_violations_total counter
oclstat_protocol_violations_total{category="command_queue"} 0
oclstat_protocol_violations_total{category="context"} 0
oclstat_protocol_violations_total{category="kernel"} 1
oclstat_protocol_violations_total{category="mem_object"} 0
oclstat_protocol_violations_total{category="program"} 0
oclstat_protocol_violations_total{category="sampler"} 0
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"oclstat_alive_resources",
		"oclstat_leaked_bytes",
		"oclstat_estimated_image_bytes",
		"oclstat_protocol_violations_total",
	)
	require.NoError(t, err)

	assert.Equal(t, 6, testutil.CollectAndCount(c, "oclstat_created_resources_total"))
}

func TestCollectorRegisters(t *testing.T) {
	tr, _ := newTracker(t)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(oclstat.NewCollector(tr)))

	_, _ = tr.CreateKernel(oclstat.KernelArgs{})
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}
