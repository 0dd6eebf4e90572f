package config

const (
	defaultConfigPath        = "~/.config/repro/config.toml"
	defaultStorageDir        = "~/.local/share/repro/storage"
	defaultContentDir        = "~/.local/share/repro/content"
	defaultLogDir            = "~/.local/share/repro/logs"
	defaultDatabaseName      = "repro.db"
	defaultUploadedDir       = "uploaded"
	defaultPreviewedDir      = "previewed"
	defaultChecksummedDir    = "checksummed"
	defaultFingerprintedDir  = "fingerprinted"
	defaultDroppedDir        = "dropped"
	defaultRejectedDir       = "rejected"
	defaultPreviewsDir       = "previews"
	defaultExcerptsDir       = "excerpts"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultPreviewFormat     = "ogg"
	defaultPreviewQuality    = "0"
	defaultPreviewSampleRate = 16000
	defaultExcerptFormat     = "wav"
	defaultExcerptSampleRate = 11025
	defaultEchoprintURL      = "http://127.0.0.1:8080"
	defaultCodegenBinary     = "echoprint-codegen"
	defaultActingIdentity    = "admin"
	defaultLoopInterval      = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			ContentDir: defaultContentDir,
			LogDir:     defaultLogDir,
		},
		Stages: Stages{
			Uploaded:      defaultUploadedDir,
			Previewed:     defaultPreviewedDir,
			Checksummed:   defaultChecksummedDir,
			Fingerprinted: defaultFingerprintedDir,
			Dropped:       defaultDroppedDir,
			Rejected:      defaultRejectedDir,
			Previews:      defaultPreviewsDir,
			Excerpts:      defaultExcerptsDir,
		},
		Audio: Audio{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			PreviewFormat:     defaultPreviewFormat,
			PreviewQuality:    defaultPreviewQuality,
			PreviewSampleRate: defaultPreviewSampleRate,
			ExcerptFormat:     defaultExcerptFormat,
			ExcerptSampleRate: defaultExcerptSampleRate,
		},
		Echoprint: Echoprint{
			URL:           defaultEchoprintURL,
			CodegenBinary: defaultCodegenBinary,
		},
		Worker: Worker{
			ActingIdentity: defaultActingIdentity,
			LoopInterval:   defaultLoopInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
