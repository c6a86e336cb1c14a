package model

import (
	"gorm.io/gorm"
)

// Host is the database form of one cached host record. Position keeps the
// registry order so a reload yields the same sequence as the file backend.
type Host struct {
	gorm.Model
	Project         string `gorm:"uniqueIndex:idx_project_address;not null"`
	Address         string `gorm:"uniqueIndex:idx_project_address;not null"`
	Hostname        string `gorm:"not null"`
	HardwareAddress string `gorm:"not null"`
	Position        int
}
