package config

const (
	defaultGroup              = "Extern"
	defaultPartsDir           = "parts"
	defaultFootprintVersion   = "20210926"
	defaultSymbolVersion      = "20211014"
	defaultSymbolGenerator    = "kicad_symbol_editor"
	defaultStateDirName       = ".partcat"
	defaultStagingMaxAgeHours = 24
	defaultHistoryEnabled     = true
	defaultHistoryFile        = "history.db"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Catalog: Catalog{
			Group:            defaultGroup,
			PartsDir:         defaultPartsDir,
			FootprintVersion: defaultFootprintVersion,
			SymbolVersion:    defaultSymbolVersion,
			SymbolGenerator:  defaultSymbolGenerator,
		},
		Staging: Staging{
			DirName:     defaultStateDirName,
			MaxAgeHours: defaultStagingMaxAgeHours,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
			File:    defaultHistoryFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
