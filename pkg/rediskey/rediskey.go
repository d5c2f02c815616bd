package rediskey

import "fmt"

// Product cache keys (shared convention between catalog reads and stock writers)
const (
	ProductPrefix     = "product"
	ProductSlugPrefix = "product:slug"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildProductIDKey returns "product:{productID}"
func BuildProductIDKey(productID string) string {
	return NamespaceKey(ProductPrefix, productID)
}

// BuildProductSlugKey returns "product:slug:{slug}"
func BuildProductSlugKey(slug string) string {
	return NamespaceKey(ProductSlugPrefix, slug)
}
