// Package measure discovers intrinsic image sizes for the collage engine.
//
// Every measurer implements [collage.Measurer] and reads only the image
// header through [image.DecodeConfig], so measuring a large photo costs a few
// kilobytes of I/O. JPEG, PNG and GIF decoders come from the standard library;
// WebP, BMP and TIFF are registered from golang.org/x/image.
//
// # Measurers
//
//   - [File] reads images below a root directory.
//   - [HTTP] fetches images from a base URL, retrying transient failures.
//   - [Cached] wraps another measurer with a [cache.Cache] and collapses
//     concurrent lookups of the same path.
//   - [Static] answers from a fixed table, for tests and pre-measured catalogs.
//
// [cache.Cache]: github.com/matzehuels/collage/pkg/cache.Cache
package measure
