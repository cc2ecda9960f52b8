package utils

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig wires viper to the process environment and to an optional .env
// file found in path. Values already present in the environment win over the file.
func LoadConfig(path string) {
	if err := godotenv.Load(path + "/.env"); err != nil {
		logrus.Debugf("[CONFIG] no .env file loaded from %s: %v", path, err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}
