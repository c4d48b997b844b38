package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/zfogg/huddle/backend/internal/database"
	"github.com/zfogg/huddle/backend/internal/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("🔍 Verifying seed data...")
	fmt.Println()

	var userCount, groupCount, memberCount, requestCount, messageCount, reportCount int64

	database.DB.Model(&models.User{}).Where("deleted_at IS NULL").Count(&userCount)
	database.DB.Model(&models.Group{}).Where("deleted_at IS NULL").Count(&groupCount)
	database.DB.Model(&models.GroupMember{}).Count(&memberCount)
	database.DB.Model(&models.MembershipRequest{}).Count(&requestCount)
	database.DB.Model(&models.Message{}).Count(&messageCount)
	database.DB.Model(&models.MessageReport{}).Count(&reportCount)

	fmt.Println("📊 Record Counts:")
	fmt.Printf("  Users:           %d\n", userCount)
	fmt.Printf("  Groups:          %d\n", groupCount)
	fmt.Printf("  Members:         %d\n", memberCount)
	fmt.Printf("  Join Requests:   %d\n", requestCount)
	fmt.Printf("  Messages:        %d\n", messageCount)
	fmt.Printf("  Message Reports: %d\n", reportCount)
	fmt.Println()

	fmt.Println("📝 Sample Data:")
	fmt.Println()

	var users []models.User
	database.DB.Where("deleted_at IS NULL").Limit(3).Find(&users)
	fmt.Println("  Sample Users:")
	for _, u := range users {
		fmt.Printf("    - %s (@%s) - %s\n", u.DisplayName, u.Username, u.City)
	}
	fmt.Println()

	var groups []models.Group
	database.DB.Preload("Creator").Where("deleted_at IS NULL").Limit(3).Find(&groups)
	fmt.Println("  Sample Groups:")
	for _, g := range groups {
		var members int64
		database.DB.Model(&models.GroupMember{}).Where("group_id = ?", g.ID).Count(&members)
		fmt.Printf("    - %s (%s) - organizer @%s, %d members\n", g.Name, g.Sport, g.Creator.Username, members)
	}
	fmt.Println()

	// Status distribution shows the moderation pipeline at work
	fmt.Println("  Message Status:")
	for _, status := range []models.MessageStatus{
		models.MessageStatusVisible,
		models.MessageStatusHidden,
		models.MessageStatusReported,
	} {
		var count int64
		database.DB.Model(&models.Message{}).Where("status = ?", status).Count(&count)
		fmt.Printf("    - %-8s %d\n", status, count)
	}
	fmt.Println()

	fmt.Println("✅ Verification complete")
}
