package fake

import "github.com/zimwip/oclstat"

// OpenCL status codes the fake returns for unknown handles.
const (
	invalidCommandQueue oclstat.Status = -36
	invalidSampler      oclstat.Status = -41
	invalidProgram      oclstat.Status = -44
)

func (b *Backend) CreateContext(oclstat.ContextArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateContext")
}

func (b *Backend) CreateContextFromType(oclstat.ContextFromTypeArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateContextFromType")
}

func (b *Backend) RetainContext(h oclstat.Handle) oclstat.Status {
	return b.retain("clRetainContext", h, oclstat.InvalidContext)
}

func (b *Backend) ReleaseContext(h oclstat.Handle) oclstat.Status {
	return b.release("clReleaseContext", h, oclstat.InvalidContext)
}

func (b *Backend) CreateCommandQueue(oclstat.QueueArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateCommandQueue")
}

func (b *Backend) CreateCommandQueueWithProperties(oclstat.QueuePropertiesArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateCommandQueueWithProperties")
}

func (b *Backend) RetainCommandQueue(h oclstat.Handle) oclstat.Status {
	return b.retain("clRetainCommandQueue", h, invalidCommandQueue)
}

func (b *Backend) ReleaseCommandQueue(h oclstat.Handle) oclstat.Status {
	return b.release("clReleaseCommandQueue", h, invalidCommandQueue)
}

func (b *Backend) CreateBuffer(oclstat.BufferArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateBuffer")
}

func (b *Backend) CreateSubBuffer(oclstat.SubBufferArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateSubBuffer")
}

func (b *Backend) CreateImage(oclstat.ImageArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateImage")
}

func (b *Backend) CreateImage2D(oclstat.Image2DArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateImage2D")
}

func (b *Backend) CreateImage3D(oclstat.Image3DArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateImage3D")
}

func (b *Backend) RetainMemObject(h oclstat.Handle) oclstat.Status {
	return b.retain("clRetainMemObject", h, oclstat.InvalidMemObject)
}

func (b *Backend) ReleaseMemObject(h oclstat.Handle) oclstat.Status {
	return b.release("clReleaseMemObject", h, oclstat.InvalidMemObject)
}

func (b *Backend) CreateSampler(oclstat.SamplerArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateSampler")
}

func (b *Backend) CreateSamplerWithProperties(oclstat.SamplerPropertiesArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateSamplerWithProperties")
}

func (b *Backend) RetainSampler(h oclstat.Handle) oclstat.Status {
	return b.retain("clRetainSampler", h, invalidSampler)
}

func (b *Backend) ReleaseSampler(h oclstat.Handle) oclstat.Status {
	return b.release("clReleaseSampler", h, invalidSampler)
}

func (b *Backend) CreateProgramWithSource(oclstat.ProgramSourceArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateProgramWithSource")
}

func (b *Backend) CreateProgramWithBinary(oclstat.ProgramBinaryArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateProgramWithBinary")
}

func (b *Backend) RetainProgram(h oclstat.Handle) oclstat.Status {
	return b.retain("clRetainProgram", h, invalidProgram)
}

func (b *Backend) ReleaseProgram(h oclstat.Handle) oclstat.Status {
	return b.release("clReleaseProgram", h, invalidProgram)
}

func (b *Backend) CreateKernel(oclstat.KernelArgs) (oclstat.Handle, oclstat.Status) {
	return b.create("clCreateKernel")
}

// CreateKernelsInProgram returns KernelsPerProgram new kernels, or a
// scripted failure with none.
func (b *Backend) CreateKernelsInProgram(oclstat.KernelsInProgramArgs) (oclstat.Status, []oclstat.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _ := b.pop("clCreateKernelsInProgram")
	var out []oclstat.Handle
	if st == oclstat.Success {
		for i := 0; i < b.KernelsPerProgram; i++ {
			h := b.alloc()
			b.refs[h] = 1
			out = append(out, h)
		}
	}
	b.calls = append(b.calls, Call{Method: "clCreateKernelsInProgram", Status: st})
	return st, out
}

func (b *Backend) RetainKernel(h oclstat.Handle) oclstat.Status {
	return b.retain("clRetainKernel", h, oclstat.InvalidKernel)
}

func (b *Backend) ReleaseKernel(h oclstat.Handle) oclstat.Status {
	return b.release("clReleaseKernel", h, oclstat.InvalidKernel)
}
