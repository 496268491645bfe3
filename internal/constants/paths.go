package constants

// DefaultEnvPath is the default path to the .env file
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the housekeeper config file
const DefaultConfigPath = "./housekeeper.toml"

// LockDirName is the directory under os.TempDir() that holds PID locks
// when the config does not set lock.dir
const LockDirName = "housekeeper"
