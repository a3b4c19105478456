package middleware

import "github.com/gin-gonic/gin"

const metaKey = "responseMeta"

// SetCacheHit marks whether the payload came from the analytics cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// SetMeta attaches a value to the response envelope meta block.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
		c.Set(metaKey, meta)
	}
	meta[key] = value
}

// ExtractMeta returns the meta block collected for the current request.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, ok := c.Get(metaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	return meta
}
