// Package persistence loads and saves the record store as one snapshot in a
// durable key-value slot.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/kv"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/security"
)

const saveFailedMessage = "Error saving data"

// Source tells where Load got the data from.
type Source string

const (
	SourceSnapshot Source = "snapshot"
	SourceSeed     Source = "seed"
)

// Adapter moves the record store to and from the snapshot slot.
type Adapter struct {
	slots     kv.Store
	store     *records.Store
	key       string
	passwords config.PasswordConfig
	seedFile  string
	logg      *logger.Logger
}

func NewAdapter(slots kv.Store, store *records.Store, cfg *config.Config, logg *logger.Logger) (*Adapter, error) {
	if slots == nil {
		return nil, fmt.Errorf("slot store is required")
	}
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	key := cfg.Storage.SnapshotKey
	if key == "" {
		key = "ipt_demo_v1"
	}
	return &Adapter{
		slots:     slots,
		store:     store,
		key:       key,
		passwords: cfg.Password,
		seedFile:  cfg.Seed.File,
		logg:      logg,
	}, nil
}

// Load restores the store from the snapshot slot. A missing, unparsable or
// account-less snapshot is replaced by the seed dataset. When the slot cannot be read the
// store is seeded in memory and a STORAGE_FAILURE error is returned next to
// a usable store.
func (a *Adapter) Load(ctx context.Context) (Source, error) {
	ctx = a.logg.WithField(ctx, "slot", a.key)

	raw, err := a.slots.Get(ctx, a.key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		a.logg.Info(ctx, "no snapshot found, seeding")
		return SourceSeed, a.Seed(ctx)
	case err != nil:
		a.logg.Error(ctx, "snapshot read failed, seeding in memory", err)
		if seedErr := a.Seed(ctx); seedErr != nil {
			if pkgerrors.CodeOf(seedErr) != pkgerrors.CodeStorage {
				return SourceSeed, seedErr
			}
		}
		return SourceSeed, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Error loading data")
	}

	var snap records.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "snapshot unparsable, reseeding")
		return SourceSeed, a.Seed(ctx)
	}
	// A snapshot without accounts leaves nobody able to log in.
	if len(snap.Accounts) == 0 {
		a.logg.Warn(ctx, "snapshot has no accounts, reseeding")
		return SourceSeed, a.Seed(ctx)
	}

	upgraded, err := a.upgradePasswords(&snap)
	if err != nil {
		return SourceSnapshot, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upgrading stored passwords")
	}
	a.store.Restore(snap)

	if upgraded > 0 {
		a.logg.Info(a.logg.WithField(ctx, "accounts", upgraded), "hashed legacy plaintext passwords")
		return SourceSnapshot, a.Save(ctx)
	}
	return SourceSnapshot, nil
}

// Seed replaces the store with the bootstrap dataset and persists it.
func (a *Adapter) Seed(ctx context.Context) error {
	ds, err := LoadDataset(a.seedFile)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading seed dataset")
	}

	a.store.Restore(records.Snapshot{})
	for _, acc := range ds.Accounts {
		hash, err := security.HashPassword(acc.Password, a.passwords)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing seed password")
		}
		if _, err := a.store.InsertAccount(records.Account{
			FirstName: acc.FirstName,
			LastName:  acc.LastName,
			Email:     acc.Email,
			Password:  hash,
			Role:      acc.Role,
			Verified:  acc.Verified,
		}); err != nil {
			return err
		}
	}
	for _, dept := range ds.Departments {
		if _, err := a.store.InsertDepartment(records.Department{Name: dept.Name, Description: dept.Description}); err != nil {
			return err
		}
	}

	return a.Save(ctx)
}

// Save writes the whole store into the snapshot slot. On failure the store
// stays authoritative in memory and a STORAGE_FAILURE error is returned.
func (a *Adapter) Save(ctx context.Context) error {
	raw, err := json.Marshal(a.store.Snapshot())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding snapshot")
	}
	if err := a.slots.Set(ctx, a.key, raw); err != nil {
		a.logg.Error(a.logg.WithField(ctx, "slot", a.key), "snapshot save failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, saveFailedMessage)
	}
	return nil
}

// upgradePasswords hashes any account password that is not already an
// encoded hash.
func (a *Adapter) upgradePasswords(snap *records.Snapshot) (int, error) {
	upgraded := 0
	for i := range snap.Accounts {
		pw := snap.Accounts[i].Password
		if pw == "" || security.IsEncodedHash(pw) {
			continue
		}
		hash, err := security.HashPassword(pw, a.passwords)
		if err != nil {
			return upgraded, err
		}
		snap.Accounts[i].Password = hash
		upgraded++
	}
	return upgraded, nil
}
