package webgpu

// Embedded WGSL compute shaders. String constants instead of embed for
// simplicity.

// workgroupSize is the default number of threads per workgroup for
// one-dimensional dispatches.
const workgroupSize = 256

// addShader performs element-wise addition: result = a + b.
const addShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] + b[idx];
    }
}
`

// subShader performs element-wise subtraction: result = a - b.
const subShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] - b[idx];
    }
}
`

// mulShader performs element-wise multiplication: result = a * b.
const mulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] * b[idx];
    }
}
`

// reluShader performs element-wise max(0, x).
const reluShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = max(input[idx], 0.0);
    }
}
`

// matmulShader performs matrix multiplication: C = A @ B.
// A is [M, K], B is [K, N], C is [M, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,  // rows of A and C
    K: u32,  // cols of A, rows of B
    N: u32,  // cols of B and C
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        let a_idx = row * params.K + k;
        let b_idx = k * params.N + col;
        sum = sum + a[a_idx] * b[b_idx];
    }

    let c_idx = row * params.N + col;
    result[c_idx] = sum;
}
`

// transposeShader transposes a 2D matrix.
const transposeShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.rows || col >= params.cols) {
        return;
    }

    // input[row][col] -> result[col][row]
    result[col * params.rows + row] = input[row * params.cols + col];
}
`

// conv2dShader performs direct 2D convolution, one thread per output
// element. Input is [N, C_in, H, W], kernel is [C_out, C_in, K_h, K_w],
// output is [N, C_out, H_out, W_out], all row-major.
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    n: u32,
    c_in: u32,
    h: u32,
    w: u32,
    c_out: u32,
    k_h: u32,
    k_w: u32,
    h_out: u32,
    w_out: u32,
    stride: u32,
    padding: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.n * params.c_out * params.h_out * params.w_out;
    if (idx >= total) {
        return;
    }

    let ox = idx % params.w_out;
    let oy = (idx / params.w_out) % params.h_out;
    let oc = (idx / (params.w_out * params.h_out)) % params.c_out;
    let b  = idx / (params.w_out * params.h_out * params.c_out);

    // Signed window origin; negative when padding > 0.
    let iy0 = i32(oy * params.stride) - i32(params.padding);
    let ix0 = i32(ox * params.stride) - i32(params.padding);

    var sum: f32 = 0.0;
    for (var ic: u32 = 0u; ic < params.c_in; ic = ic + 1u) {
        let in_base = (b * params.c_in + ic) * params.h * params.w;
        let k_base = (oc * params.c_in + ic) * params.k_h * params.k_w;
        for (var ky: u32 = 0u; ky < params.k_h; ky = ky + 1u) {
            let iy = iy0 + i32(ky);
            if (iy < 0 || iy >= i32(params.h)) {
                continue;
            }
            for (var kx: u32 = 0u; kx < params.k_w; kx = kx + 1u) {
                let ix = ix0 + i32(kx);
                if (ix < 0 || ix >= i32(params.w)) {
                    continue;
                }
                let in_idx = in_base + u32(iy) * params.w + u32(ix);
                let k_idx = k_base + ky * params.k_w + kx;
                sum = sum + input[in_idx] * kernel[k_idx];
            }
        }
    }

    result[idx] = sum;
}
`

// maxpool2dShader takes the maximum over square windows, one thread per
// output element. Input is [N, C, H, W], output is [N, C, H_out, W_out].
const maxpool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    n: u32,
    c: u32,
    h: u32,
    w: u32,
    h_out: u32,
    w_out: u32,
    kernel: u32,
    stride: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.n * params.c * params.h_out * params.w_out;
    if (idx >= total) {
        return;
    }

    let ox = idx % params.w_out;
    let oy = (idx / params.w_out) % params.h_out;
    let plane = idx / (params.w_out * params.h_out);

    let in_base = plane * params.h * params.w;
    let iy0 = oy * params.stride;
    let ix0 = ox * params.stride;

    var best: f32 = input[in_base + iy0 * params.w + ix0];
    for (var ky: u32 = 0u; ky < params.kernel; ky = ky + 1u) {
        for (var kx: u32 = 0u; kx < params.kernel; kx = kx + 1u) {
            let v = input[in_base + (iy0 + ky) * params.w + ix0 + kx];
            best = max(best, v);
        }
    }

    result[idx] = best;
}
`
