//go:build ignore

package main

import (
	"fmt"
	"strings"
	"time"

	"mutualfund-backend/services"
	"mutualfund-backend/shared"
)

// Known liquid scheme used to probe the per-scheme endpoints.
const probeSchemeCode = "120503"

func main() {
	fmt.Printf("🏥 Mutual Fund Scraper Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println(strings.Repeat("=", 50))

	healthScore := 0
	totalTests := 4

	utility := services.NewUtilityService()

	// Test 1: Fund listing page
	fmt.Print("📡 Fund Listing: ")
	discovery := services.NewFundDiscoveryService(shared.NewListingScraperConfig(), utility, "https://groww.in", false)
	if funds := discovery.DiscoverFunds(20); len(funds) == 0 {
		fmt.Println("❌ FAILED (no cards on first page)")
	} else {
		fmt.Printf("✅ OK (%d funds)\n", len(funds))
		healthScore++
	}

	navService := services.NewNavHistoryService(shared.NewNavAPIConfig(), shared.NewAMFIFeedConfig())

	// Test 2: NAV time-series API
	fmt.Print("📈 NAV API: ")
	if points := navService.FetchHistoricalNAV(probeSchemeCode, 1); len(points) == 0 {
		fmt.Println("❌ FAILED (no points)")
	} else {
		fmt.Printf("✅ OK (%d points)\n", len(points))
		healthScore++
	}

	// Test 3: Regulator bulk feed
	fmt.Print("🗄️  Bulk NAV Feed: ")
	end := time.Now().UTC()
	if points := navService.FallbackNAV(probeSchemeCode, end.AddDate(0, -1, 0), end); len(points) == 0 {
		fmt.Println("❌ FAILED (no rows for probe scheme)")
	} else {
		fmt.Printf("✅ OK (%d rows)\n", len(points))
		healthScore++
	}

	// Test 4: Portfolio stats endpoint
	fmt.Print("📊 Portfolio Stats: ")
	statsService := services.NewPortfolioStatsService(shared.NewPortfolioStatsConfig(), 5*time.Second)
	if stats := statsService.FetchPortfolioStats(probeSchemeCode, "Equity"); stats.AssetAllocation.Equity == nil {
		fmt.Println("❌ FAILED (no allocation)")
	} else {
		fmt.Println("✅ OK")
		healthScore++
	}

	fmt.Println(strings.Repeat("-", 50))
	healthPercent := float64(healthScore) / float64(totalTests) * 100

	if healthScore == totalTests {
		fmt.Printf("🎉 SYSTEM HEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else if healthScore >= totalTests/2 {
		fmt.Printf("⚠️  SYSTEM DEGRADED: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else {
		fmt.Printf("❌ SYSTEM UNHEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	}

	fmt.Printf("⏰ Check completed at: %s\n", time.Now().Format("15:04:05"))
}
