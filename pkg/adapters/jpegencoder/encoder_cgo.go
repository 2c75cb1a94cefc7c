//go:build cgo

package jpegencoder

/*
#cgo !windows pkg-config: libjpeg
#cgo windows CFLAGS: -IC:/vcpkg/installed/x64-windows-static/include
#cgo windows LDFLAGS: -LC:/vcpkg/installed/x64-windows-static/lib -ljpeg -static
#include <stdio.h>
#include <stdlib.h>
#include <setjmp.h>
#include <jpeglib.h>

typedef struct {
    int quality;
    int baseline;
    int progressive;
    int optimize;
    int smoothing;
    int density_unit;
    int x_density;
    int y_density;
} te_options;

struct te_error_mgr {
    struct jpeg_error_mgr pub;
    jmp_buf jump;
    char msg[JMSG_LENGTH_MAX];
    char warn[JMSG_LENGTH_MAX];
};

static void te_error_exit(j_common_ptr cinfo) {
    struct te_error_mgr *err = (struct te_error_mgr *)cinfo->err;
    (*cinfo->err->format_message)(cinfo, err->msg);
    longjmp(err->jump, 1);
}

// The default output_message writes to stderr. Keep the first message so
// the caller can log it.
static void te_output_message(j_common_ptr cinfo) {
    struct te_error_mgr *err = (struct te_error_mgr *)cinfo->err;
    if (err->warn[0] == 0) {
        (*cinfo->err->format_message)(cinfo, err->warn);
    }
}

// libjpeg reports errors by calling error_exit, which would terminate the
// process by default; jump back here instead.
static int te_encode(unsigned char *rgb, int width, int height, te_options opts,
                     unsigned char **out, unsigned long *out_size, char *errbuf, char *warnbuf, int buflen) {
    struct jpeg_compress_struct cinfo;
    struct te_error_mgr jerr;
    JSAMPROW row;

    *out = NULL;
    *out_size = 0;
    cinfo.err = jpeg_std_error(&jerr.pub);
    jerr.pub.error_exit = te_error_exit;
    jerr.pub.output_message = te_output_message;
    jerr.msg[0] = 0;
    jerr.warn[0] = 0;
    warnbuf[0] = 0;
    if (setjmp(jerr.jump)) {
        snprintf(errbuf, buflen, "%s", jerr.msg);
        jpeg_destroy_compress(&cinfo);
        if (*out) {
            free(*out);
            *out = NULL;
        }
        return -1;
    }

    jpeg_create_compress(&cinfo);
    jpeg_mem_dest(&cinfo, out, out_size);

    cinfo.image_width = width;
    cinfo.image_height = height;
    cinfo.input_components = 3;
    cinfo.in_color_space = JCS_RGB;
    jpeg_set_defaults(&cinfo);

    cinfo.write_JFIF_header = TRUE;
    cinfo.JFIF_major_version = 1;
    cinfo.JFIF_minor_version = 2;
    cinfo.density_unit = opts.density_unit;
    cinfo.X_density = opts.x_density;
    cinfo.Y_density = opts.y_density;
    cinfo.write_Adobe_marker = TRUE;

    jpeg_set_quality(&cinfo, opts.quality, opts.baseline ? TRUE : FALSE);
    cinfo.optimize_coding = opts.optimize ? TRUE : FALSE;
    cinfo.smoothing_factor = opts.smoothing;
    cinfo.dct_method = JDCT_ISLOW;
    if (opts.progressive) {
        jpeg_simple_progression(&cinfo);
    }

    jpeg_start_compress(&cinfo, TRUE);
    while (cinfo.next_scanline < cinfo.image_height) {
        row = (JSAMPROW)(rgb + (size_t)cinfo.next_scanline * (size_t)width * 3);
        jpeg_write_scanlines(&cinfo, &row, 1);
    }
    jpeg_finish_compress(&cinfo);
    jpeg_destroy_compress(&cinfo);
    snprintf(warnbuf, buflen, "%s", jerr.warn);
    return 0;
}
*/
import "C"

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/user/thumbextractor/pkg/ports"
)

const backend = "libjpeg"

const msgLen = 200

// encode returns the compressed image and the first libjpeg warning, if any.
func encode(img image.Image, opts ports.JPEGOptions, unit byte, x, y uint16) ([]byte, string, error) {
	size := img.Bounds().Size()
	rgb := packRGB(img)

	cRGB := C.CBytes(rgb)
	defer C.free(cRGB)

	copts := C.te_options{
		quality:      C.int(opts.Quality),
		baseline:     boolInt(opts.Baseline),
		progressive:  boolInt(opts.Progressive),
		optimize:     boolInt(opts.OptimizeHuffman),
		smoothing:    C.int(opts.Smoothing),
		density_unit: C.int(unit),
		x_density:    C.int(x),
		y_density:    C.int(y),
	}

	var out *C.uchar
	var outSize C.ulong
	errbuf := (*C.char)(C.malloc(msgLen))
	defer C.free(unsafe.Pointer(errbuf))
	warnbuf := (*C.char)(C.malloc(msgLen))
	defer C.free(unsafe.Pointer(warnbuf))

	rc := C.te_encode((*C.uchar)(cRGB), C.int(size.X), C.int(size.Y), copts, &out, &outSize, errbuf, warnbuf, msgLen)
	if rc != 0 {
		return nil, "", fmt.Errorf("jpegencoder: libjpeg: %s", C.GoString(errbuf))
	}
	defer C.free(unsafe.Pointer(out))

	return C.GoBytes(unsafe.Pointer(out), C.int(outSize)), C.GoString(warnbuf), nil
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
