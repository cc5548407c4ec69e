package configuration

type Configuration struct {
	HttpAddr   string `usage:"HTTP address"`
	Dir        string `usage:"data directory"`
	LogLevel   string `usage:"log level: debug, info, warn or error"`
	SeqUrl     string `usage:"Seq server url, empty to log only to stdout"`
	Version    bool   `usage:"show version and exit"`
	ShowConfig bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr: "127.0.0.1:8080",
		Dir:      "data",
		LogLevel: "info",
	}
}
