// Package decode reads scan report documents into the shapes the model
// package reconciles.
//
// Scan reports reach this tool from different exporters: some serialize
// every attribute as a JSON string (faithful to the XML attributes they
// came from), others emit real JSON numbers for line and accuracy
// fields. The decoder accepts both spellings and normalizes them to the
// text form the model validates, so exporter differences never leak
// past this package.
//
// A report file holds either a single document or an array of them;
// Read sniffs which and always returns a slice.
package decode
