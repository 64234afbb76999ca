package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the name of the project configuration file
	ConfigFile = "tkpdb.yaml"

	// ManifestFile is the default name of the manifest file inside the schema root
	ManifestFile = "manifest"
)
