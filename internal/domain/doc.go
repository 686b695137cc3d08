// Package domain models irrigation decisions built from weather forecasts
// and geospatial hazard layers.
//
// # Inputs
//
// A [DecisionRequest] carries a location (coordinates, a region name, or
// both), the irrigated area, a crop coefficient (Kc) and the weather: current
// [Conditions] plus the provider's forecast list of [ForecastSlot] records.
// Forecast slots are three hours apart; the first [DefaultForecastWindow]
// slots cover the next 24 hours.
//
// Area units depend on the platform mode:
//
//	individual  m², water in liters (1 mm ET0 over 1 m² = 1 L)
//	regional    km², baseline volume et0·area·1000
//
// # Evapotranspiration
//
// Reference evapotranspiration is a simplified linear estimate:
//
//	ET0 = max(0, 0.35·temp + 0.45·wind − 0.25·humidity/100)   [mm]
//
// rounded to two decimals. It is the main scalar driver for every downstream
// score.
//
// # Hazard layers
//
// Drought is read from SPI (Standardized Precipitation Index) values at the
// nearest survey point, preferring the 6-month window, then 3-month, then
// 1-month:
//
//	SPI ≥ −0.5 Low | ≥ −1.0 Medium | ≥ −1.5 High | else Extreme
//
// Watershed stress comes from the first basin polygon containing the point.
// Every hazard result carries an availability flag. An unavailable drought
// result reports Low for display but never triggers water saving.
//
// # Strategy rules
//
// Rules are evaluated in order and the first match wins:
//
//	water_saving  rain expected, ET0 < 2, drought High/Extreme, or basin stress High
//	risk_aware    temp > 30°C, humidity < 30%, wind > 5 m/s, or drought score > 2
//	recommended   otherwise
//
// Platform mode and user profile change the narrative, never the class.
//
// # ID Generation
//
// Decision IDs are deterministic SHA-256 hashes of the location, area, Kc,
// conditions and observation time, so replays of the same observation upsert
// instead of duplicating. See [DecisionID].
package domain
