package config

const (
	DefaultTitle          = "API Documentation"
	DefaultInput          = "classes.yaml"
	DefaultOutput         = "./doc"
	DefaultReadme         = "README.md"
	DefaultDocsetFilename = "search.sqlite"
	DefaultSourceRepo     = "."
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Input == "" {
		c.Input = DefaultInput
	}
	if c.Readme == "" {
		c.Readme = DefaultReadme
	}
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutput
	}
	if c.Source.Repository == "" {
		c.Source.Repository = DefaultSourceRepo
	}
	if c.Docset.Filename == "" {
		c.Docset.Filename = DefaultDocsetFilename
	}
	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = string(LogFormatText)
	}
}
