package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	TokenKeyPrefix = "token:%s"
	PostKeyPrefix  = "post:%d"
	PostsListKey   = "posts:all"

	// Generation counters. Writers bump them after the database change commits.
	TokensGenerationKey = "tokens:generation"
	PostsGenerationKey  = "posts:generation"
)

const (
	TokenTTL     = 10 * time.Minute
	PostTTL      = 30 * time.Minute
	PostsListTTL = 2 * time.Minute
)

func TokenKey(tokenID string) string {
	return fmt.Sprintf(TokenKeyPrefix, tokenID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// VersionedKey is the key a value is cached under for the given generation.
func VersionedKey(key string, gen int64) string {
	return fmt.Sprintf("%s@%d", key, gen)
}

// RetireTokens retires every cached token lookup.
func RetireTokens(ctx context.Context) {
	Bump(ctx, TokensGenerationKey)
}

// RetirePosts retires every cached post and post list.
func RetirePosts(ctx context.Context) {
	Bump(ctx, PostsGenerationKey)
}
