package config

import (
	"os"
	"strconv"
)

const DATABASE_TYPE = "HIVE_DATABASE_TYPE"
const DATABASE_URL = "HIVE_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "HIVE_DATABASE_SQLLITE_FILE_NAME"
const ENGINE_SERVER_WEB_PORT = "HIVE_ENGINE_SERVER_WEB_PORT"
const ENGINE_SCRIPT_TIMEOUT = "HIVE_ENGINE_SCRIPT_TIMEOUT" //upper bound for a single script step execution
const VAULT_KEY = "HIVE_VAULT_KEY"                         //64 hex chars, the 32 byte secretbox key for credentials
const MODEL_URL = "HIVE_MODEL_URL"                         //base url of the completion endpoint used by skill steps
const MODEL_API_KEY = "HIVE_MODEL_API_KEY"
const MODEL_NAME = "HIVE_MODEL_NAME"

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == ENGINE_SCRIPT_TIMEOUT {
		return "30s" // default to 30 seconds
	}
	if settingKey == ENGINE_SERVER_WEB_PORT {
		return "8080"
	}
	if settingKey == MODEL_NAME {
		return "default"
	}
	if settingKey == DATABASE_SQLLITE_FILE_NAME {
		return "./hive.db"
	}
	return ""
}
