package auth

import (
	"fmt"
	"strings"
)

// TokenURL opens VK's implicit OAuth flow for the standalone Kate Mobile
// client id, which is allowed to call the messages API
const TokenURL = "https://oauth.vk.com/authorize?client_id=2685278&scope=messages,offline&redirect_uri=https://oauth.vk.com/blank.html&display=page&response_type=token&revoke=1"

// ShowTokenGuide prints how to obtain a VK access token
func ShowTokenGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("VK ACCESS TOKEN")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
	fmt.Println("vkscraper reads your dialogs with a user access token that has the")
	fmt.Println("'messages' scope.")
	fmt.Println()
	fmt.Println("1. Open this URL in a browser where you are logged in to VK:")
	fmt.Println()
	fmt.Println("   " + TokenURL)
	fmt.Println()
	fmt.Println("2. Allow access. The browser lands on a blank page whose address")
	fmt.Println("   contains #access_token=...&expires_in=...")
	fmt.Println("3. Copy the value between 'access_token=' and the next '&'.")
	fmt.Println()
	fmt.Println("The token grants full access to your messages. Do not share it.")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
}

// ExtractToken accepts either a bare token or the whole redirect URL
func ExtractToken(input string) string {
	input = strings.TrimSpace(input)
	idx := strings.Index(input, "access_token=")
	if idx < 0 {
		return input
	}
	token := input[idx+len("access_token="):]
	if end := strings.IndexAny(token, "&#"); end >= 0 {
		token = token[:end]
	}
	return token
}
