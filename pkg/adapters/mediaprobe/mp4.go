package mediaprobe

import (
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// ProbeMP4File reads the video track metadata of a progressive MP4.
func ProbeMP4File(path string) (ports.MediaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.MediaInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeMP4(f)
}

// ProbeMP4 reads the video track metadata from an MP4 stream.
func ProbeMP4(reader io.Reader) (ports.MediaInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.MediaInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	var traks []*mp4.TrakBox
	if mp4File.Moov != nil {
		traks = mp4File.Moov.Traks
	} else if mp4File.Init != nil && mp4File.Init.Moov != nil {
		traks = mp4File.Init.Moov.Traks
	}

	for _, trak := range traks {
		if info, ok := videoTrackInfo(trak); ok {
			return info, nil
		}
	}
	return ports.MediaInfo{}, fmt.Errorf("no video track found")
}

func videoTrackInfo(trak *mp4.TrakBox) (ports.MediaInfo, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return ports.MediaInfo{}, false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return ports.MediaInfo{}, false
	}
	stbl := trak.Mdia.Minf.Stbl

	info := ports.MediaInfo{Codec: CodecUnknown}
	for _, child := range stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			info.Codec = CodecH264
		case "hvc1", "hev1":
			info.Codec = CodecHEVC
		case "av01":
			info.Codec = CodecAV1
		case "vp09":
			info.Codec = CodecVP9
		}
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
	}

	if stbl.Stsz != nil {
		info.FrameCount = int(stbl.Stsz.SampleNumber)
	}

	var timescale uint64
	if trak.Mdia.Mdhd != nil {
		timescale = uint64(trak.Mdia.Mdhd.Timescale)
	}
	var samples, ticks uint64
	if stbl.Stts != nil {
		for i, count := range stbl.Stts.SampleCount {
			samples += uint64(count)
			ticks += uint64(count) * uint64(stbl.Stts.SampleTimeDelta[i])
		}
	}
	if info.FrameCount == 0 {
		info.FrameCount = int(samples)
	}
	if timescale > 0 && ticks > 0 {
		info.FrameRate = float64(samples) * float64(timescale) / float64(ticks)
		info.DurationMs = int(ticks * 1000 / timescale)
	}
	return info, true
}
