package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for
// extracting a Douyin session cookie from a logged-in browser.
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 DOUYIN COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("The crawler can reuse the session of a browser you are already")
	fmt.Println("logged in with, instead of running the QR-code login flow.")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open Douyin in your browser")
	fmt.Println("   - Go to https://www.douyin.com")
	fmt.Println("   - Log in and make sure the feed loads")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Open Developer Tools (F12) and go to the Network tab")
	fmt.Println("   - Refresh the page if the tab is empty")
	fmt.Println()

	fmt.Println("🍪 STEP 3: Copy the Cookie header")
	fmt.Println("   1. Click any request to 'www.douyin.com'")
	fmt.Println("   2. Scroll to 'Request Headers'")
	fmt.Println("   3. Copy the ENTIRE value of the 'Cookie:' line")
	fmt.Println("      (it must contain LOGIN_STATUS=1 to count as logged in)")
	fmt.Println()

	fmt.Println("🔑 STEP 4: Optionally grab the msToken")
	fmt.Println("   - Application tab → Local Storage → https://www.douyin.com → key 'xmst'")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • The cookie gives FULL access to your account, never share it")
	fmt.Println("   • Use a secondary account for crawling")
	fmt.Println("   • This tool stores it encrypted (keychain or AES file)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\n🍪 Quick Guide: F12 → Network tab → Refresh → Click any www.douyin.com request → Headers → Cookie")
	fmt.Println("   Need: the full Cookie header (with LOGIN_STATUS=1)")
	fmt.Println("   Type 'help' for detailed instructions")
}
