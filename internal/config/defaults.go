package config

const (
	defaultVoxDir           = "~/sdvx/vox"
	defaultDBDir            = "~/sdvx/music_db"
	defaultAudioDir         = "~/sdvx/song_prepared"
	defaultJacketDir        = "~/sdvx/jacket"
	defaultChipSoundDir     = "~/sdvx/fx_chip_sound"
	defaultOutDir           = "~/sdvx/ksh"
	defaultLogDir           = "~/.local/share/vox2ksh/logs"
	defaultHistoryPath      = "~/.local/share/vox2ksh/history.db"
	defaultWorkers          = 1
	defaultPreviewOffset    = 0
	defaultFilterGain       = 50
	defaultSlamVolume       = 40
	defaultLaserAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmno"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	maxWorkers              = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VoxDir:       defaultVoxDir,
			DBDir:        defaultDBDir,
			AudioDir:     defaultAudioDir,
			JacketDir:    defaultJacketDir,
			ChipSoundDir: defaultChipSoundDir,
			OutDir:       defaultOutDir,
			LogDir:       defaultLogDir,
			HistoryPath:  defaultHistoryPath,
		},
		Convert: Convert{
			Workers:              defaultWorkers,
			MergeDB:              true,
			CopyMedia:            true,
			PreviewOffsetSeconds: defaultPreviewOffset,
			FilterGain:           defaultFilterGain,
			SlamVolume:           defaultSlamVolume,
			LaserAlphabet:        defaultLaserAlphabet,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
