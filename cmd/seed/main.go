// seed creates the default admin and development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: existing users are left alone and devices are upserted by their GLPI id.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"device-maintenance/backend/internal/config"
	"device-maintenance/backend/internal/db"
	devicedomain "device-maintenance/backend/internal/device/domain"
	devicerepo "device-maintenance/backend/internal/device/repository"
	identityservice "device-maintenance/backend/internal/identity/service"
	maintdomain "device-maintenance/backend/internal/maintenance/domain"
	maintrepo "device-maintenance/backend/internal/maintenance/repository"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/security"
	userdomain "device-maintenance/backend/internal/user/domain"
	userrepo "device-maintenance/backend/internal/user/repository"
)

const devPassword = "password123"

type sampleUser struct {
	username, name string
	role           userdomain.Role
	addMaintenance bool
}

var sampleUsers = []sampleUser{
	{username: "auditor", name: "Auditoria", role: userdomain.RoleAuditor},
	{username: "tecnico", name: "Técnico de Campo", role: userdomain.RoleUser, addMaintenance: true},
	{username: "usuario", name: "Usuário", role: userdomain.RoleUser},
}

var sampleDevices = []devicedomain.Device{
	{GLPIID: 900001, Name: "PC-ADM-001", Entity: "Sede", Location: "Administração", AssetTag: "PAT-0001", Serial: "SN-A1", Status: "Em uso"},
	{GLPIID: 900002, Name: "PC-FIN-002", Entity: "Sede", Location: "Financeiro", AssetTag: "PAT-0002", Serial: "SN-B2", Status: "Em uso"},
	{GLPIID: 900003, Name: "NB-TI-003", Entity: "Filial Norte", AssetTag: "PAT-0003", Serial: "SN-C3", Status: "Estoque"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	conn, err := db.OpenContext(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	hasher := security.NewHasher(cfg.BcryptCost)
	auth := identityservice.NewAuthService(users, hasher, nil, nil)
	if created, err := auth.EnsureDefaultAdmin(ctx, cfg.DefaultAdminPassword); err != nil {
		log.Fatalf("default admin: %v", err)
	} else if created {
		log.Printf("created %s", userdomain.AdminUsername)
	}

	now := time.Now().UTC()
	hash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	for _, s := range sampleUsers {
		existing, err := users.GetByUsername(ctx, s.username)
		if err != nil {
			log.Fatalf("lookup %s: %v", s.username, err)
		}
		if existing != nil {
			continue
		}
		overrides := rbac.ResetOverrides(s.role)
		if s.addMaintenance {
			granted := true
			overrides.AddMaintenance = &granted
		}
		if err := users.Create(ctx, &userdomain.User{
			ID:           uuid.New().String(),
			Username:     s.username,
			DisplayName:  s.name,
			PasswordHash: hash,
			Role:         s.role,
			Overrides:    overrides,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			log.Fatalf("create %s: %v", s.username, err)
		}
		log.Printf("created %s (%s)", s.username, s.role)
	}

	devices := devicerepo.NewPostgresRepository(conn)
	records := maintrepo.NewPostgresRepository(conn)
	for i := range sampleDevices {
		d := sampleDevices[i]
		d.GLPIData = []byte(fmt.Sprintf(`{"id":%d,"name":%q}`, d.GLPIID, d.Name))
		id, err := devices.UpsertByGLPIID(ctx, &d)
		if err != nil {
			log.Fatalf("upsert %s: %v", d.Name, err)
		}
		if err := devices.ReplaceComponents(ctx, id, []*devicedomain.Component{
			{ID: uuid.New().String(), DeviceID: id, ItemType: "Item_DeviceProcessor", Name: "Intel Core i5-10400", Manufacturer: "Intel", CreatedAt: now},
			{ID: uuid.New().String(), DeviceID: id, ItemType: "Item_DeviceMemory", Name: "DDR4", Capacity: "8192", CreatedAt: now},
		}); err != nil {
			log.Fatalf("components %s: %v", d.Name, err)
		}

		// The first device gets an overdue preventive record, the second a corrective one, the third none.
		existing, err := records.ListRecordsByDevice(ctx, id)
		if err != nil {
			log.Fatalf("records %s: %v", d.Name, err)
		}
		if len(existing) > 0 || i == 2 {
			continue
		}
		var kind maintdomain.Kind = maintdomain.NewCorrective()
		performed := now.AddDate(0, 0, -10)
		if i == 0 {
			if kind, err = maintdomain.NewPreventive(180); err != nil {
				log.Fatalf("kind: %v", err)
			}
			performed = now.AddDate(0, 0, -200)
		}
		tech := "Técnico de Campo"
		r := &maintdomain.Record{
			ID:          uuid.New().String(),
			DeviceID:    id,
			Kind:        kind,
			Description: "Limpeza interna e troca de pasta térmica",
			PerformedAt: performed,
			Technician:  &tech,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		r.Reschedule()
		if err := records.CreateRecord(ctx, r); err != nil {
			log.Fatalf("record %s: %v", d.Name, err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / (DEFAULT_ADMIN_PASSWORD)\n", userdomain.AdminUsername)
	fmt.Printf("Sample logins: auditor, tecnico, usuario / %s\n", devPassword)
}
