// Package identify reconciles local ROM files against the reference
// catalog.
//
// Identification layers its evidence: a content checksum is the strongest
// signal, a filename-derived release number and a normalized-name search
// are weak ones. Agreement between the checksum and the filename release
// number, or between the two weak signals, is accepted without asking;
// any single weak signal goes through the Prompter so a regional variant
// is never silently misfiled. The manual name search is an explicit loop
// that ends as soon as the user stops supplying new terms.
package identify
