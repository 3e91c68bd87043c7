// Package video provides the video source layer for the Masa frame buffer.
//
// The package wraps a decodable media source behind a small seekable
// interface and delivers frames already resized to the display target.
//
// # Sources
//
// A Source is the raw decoder: it knows the frame count, can position its
// read cursor at an absolute index and decodes frames one at a time.
// Two implementations are provided:
//
//   - FileSource: decodes a media file through Vidio (ffmpeg)
//   - SyntheticSource: generates deterministic frames in memory for tests
//
// # VideoSource
//
// VideoSource adapts a Source for playback. On construction it probes one
// frame to learn the true decoded dimensions (container metadata is not
// trusted), rewinds to frame 0 and computes the target size:
//
//	src, err := video.Open("clip.mp4", video.SizeOptions{Width: 640, PreserveAspect: true})
//	if err != nil {
//	    return fmt.Errorf("open failed: %w", err)
//	}
//	defer src.Close()
//
//	src.Seek(10)
//	frame, err := src.ReadNext() // frame 10, resized to src.TargetSize()
//
// ReadNext returns a nil frame and a nil error at end-of-stream.
//
// # Scaling
//
// Every delivered frame is resized with Catmull-Rom (cubic) interpolation
// from golang.org/x/image/draw. CalculateSize derives the target
// dimensions once from the native size and the requested size.
//
// # Thread Safety
//
// Sources and VideoSource are NOT safe for concurrent use. The playback
// engine serialises every seek and read on its own cursor lock.
package video
