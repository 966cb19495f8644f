package pg0

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/pg0/cmds"
	"github.com/reusee/pg0/configs"
	"github.com/reusee/pg0/logs"
	"github.com/reusee/pg0/vars"
)

//go:embed schema.cue
var ConfigSchema string

var (
	configFlag     = cmds.Var[string]("-config", "cue file with engine defaults")
	traceFlag      = cmds.Switch("-trace", "log every executed instruction")
	importPathFlag = cmds.Collect[string]("-import-path", "extra directory searched by #import")
)

// Config holds the engine defaults read from cue files and flags.
type Config struct {
	Extension   bool
	Strict      bool
	Hex         bool
	Trace       bool
	ImportPaths []string
	Libraries   []string
}

func (Module) ConfigsLoader(
	logger logs.Logger,
) configs.Loader {

	var paths []string
	defer func() {
		if len(paths) > 0 {
			logger.Info("config file",
				"paths", paths,
			)
		}
	}()

	// flag
	if *configFlag != "" {
		paths = append(paths, *configFlag)
	}

	filenames := []string{
		"pg0.cue",
		".pg0.cue",
	}

	// working directory
	workingDir, err := os.Getwd()
	if err == nil {
		for _, filename := range filenames {
			path := filepath.Join(workingDir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	// user config dir
	configDir, err := os.UserConfigDir()
	if err == nil {
		for _, filename := range filenames {
			path := filepath.Join(configDir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	// system wide dir
	for _, filename := range filenames {
		path := filepath.Join("/etc", filename)
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}

	return configs.NewLoader(paths, ConfigSchema)
}

func (Module) Config(
	loader configs.Loader,
) Config {
	config, err := LoadConfig(loader)
	if err != nil {
		panic(err)
	}
	return config
}

// LoadConfig reads Config from loader, applying the command line flags on top.
func LoadConfig(loader configs.Loader) (config Config, err error) {
	get := func(path string) bool {
		if err != nil {
			return false
		}
		var v *bool
		v, err = configs.Get[*bool](loader, path)
		return vars.DerefOr(v, path == "extension")
	}
	config.Extension = get("extension")
	config.Strict = get("strict")
	config.Hex = get("hex")
	config.Trace = vars.FirstNonZero(*traceFlag, get("trace"))
	if err != nil {
		return config, err
	}

	config.Libraries, err = configs.Get[[]string](loader, "libraries")
	if err != nil {
		return config, err
	}
	config.ImportPaths = append(config.ImportPaths, *importPathFlag...)
	for paths, err := range configs.All[[]string](loader, "import_paths") {
		if err != nil {
			return config, err
		}
		config.ImportPaths = append(config.ImportPaths, paths...)
	}
	return config, nil
}
