package config

const (
	defaultCatalogDir     = "~/.local/share/mediascan"
	defaultLogDir         = "~/.local/share/mediascan/logs"
	defaultScanRoot       = "~/Pictures"
	defaultJunkMinBytes   = 10_000
	defaultJunkMinPixels  = 64
	defaultNearThreshold  = 8
	defaultSampleFrames   = 3
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultProbeTimeout   = 30
	defaultExtractTimeout = 30
	defaultWorkers        = 4
	defaultLogFormat      = "auto"
	defaultLogLevel       = "info"
	defaultDebounceMillis = 500
)

func defaultImageExtensions() []string {
	return []string{
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif",
		".webp", ".heic", ".heif", ".raw", ".cr2", ".nef", ".arw",
	}
}

func defaultVideoExtensions() []string {
	return []string{
		".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm",
		".m4v", ".mpg", ".mpeg", ".3gp",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogDir: defaultCatalogDir,
			LogDir:     defaultLogDir,
		},
		Scan: Scan{
			Root:            defaultScanRoot,
			ImageExtensions: defaultImageExtensions(),
			VideoExtensions: defaultVideoExtensions(),
			JunkMinBytes:    defaultJunkMinBytes,
			JunkMinPixels:   defaultJunkMinPixels,
		},
		Dedupe: Dedupe{
			NearThreshold: defaultNearThreshold,
		},
		Video: Video{
			SampleFrames:   defaultSampleFrames,
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			ProbeTimeout:   defaultProbeTimeout,
			ExtractTimeout: defaultExtractTimeout,
		},
		Pipeline: Pipeline{
			Workers: defaultWorkers,
		},
		Watch: Watch{
			DebounceMillis: defaultDebounceMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
