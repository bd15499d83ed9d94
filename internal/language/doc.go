// Package language maps language codes and word forms onto the codes the
// speech engine accepts and the ISO 639-2 codes used to tag subtitle tracks.
package language
