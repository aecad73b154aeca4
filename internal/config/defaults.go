package config

const (
	defaultDataDir         = "~/.local/share/romshelf"
	defaultScratchDir      = "~/.cache/romshelf/scratch"
	defaultSavesDir        = "~/.local/share/romshelf/saves"
	defaultLogDir          = "~/.local/share/romshelf/logs"
	defaultFlashcart       = "/mnt/ds"
	defaultFeedURL         = "http://advanscene.com/offline/datas/ADVANsCEne_NDS_S.zip"
	defaultDownloadTimeout = 300
	defaultSevenZipBinary  = "7z"
	defaultUnrarBinary     = "unrar"
	defaultSaveExtension   = "sav"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			ScratchDir: defaultScratchDir,
			SavesDir:   defaultSavesDir,
			Flashcart:  defaultFlashcart,
			LogDir:     defaultLogDir,
		},
		Catalog: Catalog{
			FeedURL:         defaultFeedURL,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Scanner: Scanner{
			Extensions:     []string{"nds", "zip", "7z", "rar"},
			SevenZipBinary: defaultSevenZipBinary,
			UnrarBinary:    defaultUnrarBinary,
		},
		Saves: Saves{
			Extension: defaultSaveExtension,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
