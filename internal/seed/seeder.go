package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var sports = []string{
	"soccer", "basketball", "tennis", "running", "cycling",
	"volleyball", "climbing", "badminton", "yoga", "swimming",
}

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating groups...")
	groups, err := s.seedGroups(users, 15)
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}

	log("Creating membership requests...")
	if err := s.seedMembershipRequests(users, groups, 40); err != nil {
		return fmt.Errorf("failed to seed membership requests: %w", err)
	}

	log("Creating messages...")
	messages, err := s.seedMessages(groups, 400)
	if err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	log("Creating message reports...")
	if err := s.seedMessageReports(messages, 60); err != nil {
		return fmt.Errorf("failed to seed message reports: %w", err)
	}

	log("Creating device tokens...")
	if err := s.seedDeviceTokens(users, 30); err != nil {
		return fmt.Errorf("failed to seed device tokens: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed cast so end-to-end
// suites can log in with known credentials (password123).
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
	}{
		{"alice", "alice@example.com", "Alice Smith"},
		{"bob", "bob@example.com", "Bob Johnson"},
		{"charlie", "charlie@example.com", "Charlie Brown"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedStr := string(hashed)

		user = models.User{
			Email:        spec.email,
			Username:     spec.username,
			DisplayName:  spec.displayName,
			PasswordHash: &hashedStr,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	// Alice organizes a group with bob as member and charlie pending
	var group models.Group
	err := s.db.Where("name = ? AND creator_id = ?", "Sunday Pickup Soccer", users[0].ID).First(&group).Error
	if err != nil {
		group = models.Group{
			CreatorID:   users[0].ID,
			Name:        "Sunday Pickup Soccer",
			Description: "Casual 5-a-side, all levels welcome",
			Sport:       "soccer",
			Location:    "Riverside Park",
		}
		if err := s.db.Create(&group).Error; err != nil {
			return fmt.Errorf("failed to create test group: %w", err)
		}
		members := []models.GroupMember{
			{GroupID: group.ID, UserID: users[0].ID},
			{GroupID: group.ID, UserID: users[1].ID},
		}
		if err := s.db.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to create test members: %w", err)
		}
		request := models.MembershipRequest{
			GroupID: group.ID,
			UserID:  users[2].ID,
			Message: "Can I join this week?",
		}
		if err := s.db.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to create test request: %w", err)
		}
	}

	return nil
}

// Clean removes all rows from seeded tables. Destructive.
func (s *Seeder) Clean() error {
	tables := []interface{}{
		&models.Notification{},
		&models.DeviceToken{},
		&models.MessageReport{},
		&models.GroupReport{},
		&models.Message{},
		&models.MembershipRequest{},
		&models.GroupMember{},
		&models.Group{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clean table: %w", err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashedStr := string(hashed)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), i)
		user := models.User{
			Email:        fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Username:     username,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.Sentence(8),
			City:         gofakeit.City(),
			PasswordHash: &hashedStr,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedGroups(users []models.User, count int) ([]models.Group, error) {
	groups := make([]models.Group, 0, count)
	for i := 0; i < count; i++ {
		organizer := users[rand.Intn(len(users))]
		sport := sports[rand.Intn(len(sports))]
		startsAt := time.Now().Add(time.Duration(rand.Intn(14*24)) * time.Hour)

		group := models.Group{
			CreatorID:   organizer.ID,
			Name:        fmt.Sprintf("%s %s", gofakeit.City(), sport),
			Description: gofakeit.Sentence(12),
			Sport:       sport,
			Location:    gofakeit.Street(),
			StartsAt:    &startsAt,
			MaxMembers:  rand.Intn(20),
		}
		if err := s.db.Create(&group).Error; err != nil {
			return nil, err
		}

		// Organizer is always a member, plus a handful of others
		memberIDs := map[string]bool{organizer.ID: true}
		members := []models.GroupMember{{GroupID: group.ID, UserID: organizer.ID}}
		for j := 0; j < 3+rand.Intn(8); j++ {
			u := users[rand.Intn(len(users))]
			if memberIDs[u.ID] {
				continue
			}
			memberIDs[u.ID] = true
			members = append(members, models.GroupMember{GroupID: group.ID, UserID: u.ID})
		}
		if err := s.db.Create(&members).Error; err != nil {
			return nil, err
		}
		group.Members = members
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Seeder) seedMembershipRequests(users []models.User, groups []models.Group, count int) error {
	for i := 0; i < count; i++ {
		group := groups[rand.Intn(len(groups))]
		user := users[rand.Intn(len(users))]

		memberIDs := map[string]bool{}
		for _, m := range group.Members {
			memberIDs[m.UserID] = true
		}
		if memberIDs[user.ID] {
			continue
		}

		var existing int64
		s.db.Model(&models.MembershipRequest{}).
			Where("group_id = ? AND user_id = ? AND status = ?", group.ID, user.ID, models.RequestStatusPending).
			Count(&existing)
		if existing > 0 {
			continue
		}

		request := models.MembershipRequest{
			GroupID: group.ID,
			UserID:  user.ID,
			Message: gofakeit.Sentence(6),
		}
		if err := s.db.Create(&request).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedMessages(groups []models.Group, count int) ([]models.Message, error) {
	messages := make([]models.Message, 0, count)
	for i := 0; i < count; i++ {
		group := groups[rand.Intn(len(groups))]
		if len(group.Members) == 0 {
			continue
		}
		member := group.Members[rand.Intn(len(group.Members))]

		var author models.User
		if err := s.db.Where("id = ?", member.UserID).First(&author).Error; err != nil {
			return nil, err
		}

		message := models.Message{
			GroupID:      group.ID,
			AuthorID:     author.ID,
			AuthorName:   author.DisplayName,
			AuthorAvatar: author.AvatarURL,
			Content:      gofakeit.Sentence(4 + rand.Intn(12)),
			IsOrganizer:  author.ID == group.CreatorID,
		}
		if err := s.db.Create(&message).Error; err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (s *Seeder) seedMessageReports(messages []models.Message, count int) error {
	reasons := []models.ReportReason{
		models.ReportReasonSpam,
		models.ReportReasonInappropriate,
		models.ReportReasonOffensive,
		models.ReportReasonOther,
	}

	for i := 0; i < count; i++ {
		message := messages[rand.Intn(len(messages))]

		var members []models.GroupMember
		if err := s.db.Where("group_id = ?", message.GroupID).Find(&members).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			continue
		}
		reporter := members[rand.Intn(len(members))]
		if reporter.UserID == message.AuthorID {
			continue
		}

		var existing int64
		s.db.Model(&models.MessageReport{}).
			Where("message_id = ? AND reporter_id = ?", message.ID, reporter.UserID).
			Count(&existing)
		if existing > 0 {
			continue
		}

		report := models.MessageReport{
			MessageID:   message.ID,
			ReporterID:  reporter.UserID,
			Reason:      reasons[rand.Intn(len(reasons))],
			Description: gofakeit.Sentence(5),
		}
		if err := s.db.Create(&report).Error; err != nil {
			return err
		}

		// Mirror the auto-report rule so seeded data matches production state
		var total int64
		s.db.Model(&models.MessageReport{}).Where("message_id = ?", message.ID).Count(&total)
		if total >= 3 {
			s.db.Model(&models.Message{}).
				Where("id = ? AND status = ?", message.ID, models.MessageStatusVisible).
				Update("status", models.MessageStatusReported)
		}
	}
	return nil
}

func (s *Seeder) seedDeviceTokens(users []models.User, count int) error {
	platforms := []string{"ios", "android"}
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		token := models.DeviceToken{
			UserID:   user.ID,
			Token:    gofakeit.UUID(),
			Platform: platforms[rand.Intn(len(platforms))],
		}
		if err := s.db.Create(&token).Error; err != nil {
			return err
		}
	}
	return nil
}
