package text

// Option configures a Face.
type Option func(*faceConfig)

type faceConfig struct {
	atlas     *Atlas
	atlasSize int
	language  string
	cacheSize int
}

func defaultFaceConfig() faceConfig {
	return faceConfig{
		atlasSize: DefaultAtlasSize,
		language:  "en",
		cacheSize: 256,
	}
}

// WithAtlas makes the face pack into a shared atlas instead of its own.
func WithAtlas(a *Atlas) Option {
	return func(c *faceConfig) {
		c.atlas = a
	}
}

// WithAtlasSize sets the dimension of the face's own atlas.
func WithAtlasSize(n int) Option {
	return func(c *faceConfig) {
		c.atlasSize = n
	}
}

// WithLanguage sets the language tag used for shaping (e.g., "en", "tr").
func WithLanguage(lang string) Option {
	return func(c *faceConfig) {
		c.language = lang
	}
}

// WithShapingCache sets how many shaped lines are kept. Zero disables the
// cache.
func WithShapingCache(n int) Option {
	return func(c *faceConfig) {
		c.cacheSize = n
	}
}
