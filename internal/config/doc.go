// Package config provides configuration structures and utilities for osfp.
// It defines the main options for reconciling scan reports, analysis
// thresholds, history storage, and report generation preferences.
package config
