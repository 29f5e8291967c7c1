// Package dynamics provides look-ahead envelope-gain processors.
//
// Included processors:
//   - Hyrax: look-ahead brickwall limiter with a multi-stage smoothed
//     reduction-ratio envelope, intended for offline mastering pipelines
//     rather than real-time musical dynamics.
package dynamics
