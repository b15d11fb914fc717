package world

import (
	"github.com/bastionmc/bastion/pkg/protocol"
)

// Identifiers for the synthetic world presented during a check. The
// overworld and its plains biome are the only entries any client needs
// to load the empty fall area.
const (
	DimensionKey = "minecraft:overworld"
	BiomeKey     = "minecraft:plains"
)

// DimensionID indexes DimensionKey in the synchronized dimension_type
// registry, for versions that reference the dimension by number.
const DimensionID = 0

// dimensionMembers builds the dimension_type element fields for 1.16.2
// and newer. Older versions use the flat 1.16.0 layout instead.
func dimensionMembers(v protocol.Version) [][]byte {
	infiniburn := "minecraft:infiniburn_overworld"
	if v >= protocol.V1_18_2 {
		infiniburn = "#" + infiniburn
	}
	members := [][]byte{
		nbtByte("piglin_safe", 0),
		nbtByte("natural", 1),
		nbtFloat("ambient_light", 0),
		nbtString("infiniburn", infiniburn),
		nbtByte("respawn_anchor_works", 0),
		nbtByte("has_skylight", 1),
		nbtByte("bed_works", 1),
		nbtString("effects", "minecraft:overworld"),
		nbtByte("has_raids", 1),
		nbtInt("logical_height", 256),
		nbtDouble("coordinate_scale", 1),
		nbtByte("ultrawarm", 0),
		nbtByte("has_ceiling", 0),
	}
	if v >= protocol.V1_17 {
		members = append(members,
			nbtInt("min_y", 0),
			nbtInt("height", 256),
		)
	}
	if v >= protocol.V1_19 {
		members = append(members,
			nbtInt("monster_spawn_light_level", 7),
			nbtInt("monster_spawn_block_light_limit", 0),
		)
	}
	return members
}

func biomeMembers(v protocol.Version) [][]byte {
	var members [][]byte
	if v >= protocol.V1_19_4 {
		members = append(members, nbtByte("has_precipitation", 1))
	} else {
		members = append(members, nbtString("precipitation", "rain"))
	}
	members = append(members,
		nbtFloat("temperature", 0.8),
		nbtFloat("downfall", 0.4),
	)
	if v < protocol.V1_19 {
		members = append(members, nbtString("category", "plains"))
	}
	members = append(members, nbtCompound("effects",
		nbtInt("sky_color", 7907327),
		nbtInt("water_fog_color", 329011),
		nbtInt("fog_color", 12638463),
		nbtInt("water_color", 4159204),
		nbtCompound("mood_sound",
			nbtInt("tick_delay", 6000),
			nbtDouble("offset", 2),
			nbtString("sound", "minecraft:ambient.cave"),
			nbtInt("block_search_extent", 8),
		),
	))
	return members
}

// chatTypeMembers builds the minecraft:chat element. 1.19.0 wraps the
// keys in decoration compounds; 1.19.1 flattened the layout.
func chatTypeMembers(v protocol.Version) [][]byte {
	if v < protocol.V1_19_1 {
		return [][]byte{
			nbtCompound("chat",
				nbtCompound("decoration",
					nbtString("translation_key", "chat.type.text"),
					nbtStringList("parameters", "sender", "content"),
					nbtCompound("style"),
				),
			),
			nbtCompound("narration",
				nbtCompound("decoration",
					nbtString("translation_key", "chat.type.text.narrate"),
					nbtStringList("parameters", "sender", "content"),
					nbtCompound("style"),
				),
				nbtString("priority", "chat"),
			),
		}
	}
	return [][]byte{
		nbtCompound("chat",
			nbtString("translation_key", "chat.type.text"),
			nbtStringList("parameters", "sender", "content"),
		),
		nbtCompound("narration",
			nbtString("translation_key", "chat.type.text.narrate"),
			nbtStringList("parameters", "sender", "content"),
		),
	}
}

// damageTypeNames lists every damage type the client insists on having
// once the registry exists. 1.20 extended the set.
func damageTypeNames(v protocol.Version) []string {
	names := []string{
		"in_fire", "lightning_bolt", "on_fire", "lava", "hot_floor",
		"in_wall", "cramming", "drown", "starve", "cactus", "fall",
		"fly_into_wall", "out_of_world", "generic", "magic", "wither",
		"dragon_breath", "dry_out", "sweet_berry_bush", "freeze",
		"stalagmite", "falling_block", "falling_anvil",
		"falling_stalactite", "sting", "mob_attack",
		"mob_attack_no_aggro", "player_attack", "arrow", "trident",
		"mob_projectile", "fireworks", "fireball",
		"unattributed_fireball", "wither_skull", "thrown",
		"indirect_magic", "thorns", "explosion", "player_explosion",
		"sonic_boom", "bad_respawn_point",
	}
	if v >= protocol.V1_20 {
		names = append(names, "outside_border", "generic_kill")
	}
	return names
}

func damageTypeMembers(name string) [][]byte {
	return [][]byte{
		nbtString("message_id", name),
		nbtString("scaling", "when_caused_by_living_non_player"),
		nbtFloat("exhaustion", 0),
	}
}

func registryEntry(name string, id int32, element [][]byte) []byte {
	return nbtMembers(
		nbtString("name", name),
		nbtInt("id", id),
		nbtCompound("element", element...),
	)
}

func registryCompound(key string, entries ...[]byte) []byte {
	return nbtCompound(key,
		nbtString("type", key),
		nbtCompoundList("value", entries...),
	)
}

// codecMembers assembles the registries embedded in 1.16.2–1.20.1 join
// packets and the single 1.20.2 configuration blob.
func codecMembers(v protocol.Version) [][]byte {
	members := [][]byte{
		registryCompound("minecraft:dimension_type",
			registryEntry(DimensionKey, DimensionID, dimensionMembers(v))),
		registryCompound("minecraft:worldgen/biome",
			registryEntry(BiomeKey, 0, biomeMembers(v))),
	}
	if v >= protocol.V1_19 {
		members = append(members, registryCompound("minecraft:chat_type",
			registryEntry("minecraft:chat", 0, chatTypeMembers(v))))
	}
	if v >= protocol.V1_19_4 {
		entries := make([][]byte, 0, len(damageTypeNames(v)))
		for i, name := range damageTypeNames(v) {
			entries = append(entries, registryEntry(
				"minecraft:"+name, int32(i), damageTypeMembers(name)))
		}
		members = append(members, registryCompound("minecraft:damage_type", entries...))
	}
	return members
}

// legacyCodec builds the flat 1.16.0 registry form, a plain dimension
// list with the element fields inlined next to the name.
func legacyCodec() []byte {
	return nbtRoot(nbtCompoundList("dimension", nbtMembers(
		nbtString("name", DimensionKey),
		nbtByte("natural", 1),
		nbtFloat("ambient_light", 0),
		nbtByte("shrunk", 0),
		nbtByte("ultrawarm", 0),
		nbtByte("has_ceiling", 0),
		nbtByte("has_skylight", 1),
		nbtByte("piglin_safe", 0),
		nbtByte("bed_works", 1),
		nbtByte("respawn_anchor_works", 0),
		nbtByte("has_raids", 1),
		nbtInt("logical_height", 256),
		nbtString("infiniburn", "minecraft:infiniburn_overworld"),
	)))
}

// DimensionCodec returns the registry codec compound carried by join
// packets from 1.16 through 1.20.1.
func DimensionCodec(v protocol.Version) []byte {
	if v < protocol.V1_16_2 {
		return legacyCodec()
	}
	return nbtRoot(codecMembers(v)...)
}

// DimensionType returns the active dimension compound join packets
// carry between 1.16.2 and 1.18.2.
func DimensionType(v protocol.Version) []byte {
	return nbtRoot(dimensionMembers(v)...)
}

type syncEntry struct {
	name    string
	element [][]byte
}

func syncPayload(registry string, entries []syncEntry) []byte {
	var w protocol.Writer
	w.String(registry)
	w.VarInt(int32(len(entries)))
	for _, e := range entries {
		w.String(e.name)
		w.Bool(true)
		w.Raw(nbtRootNetwork(e.element...))
	}
	return w.Bytes()
}

// RegistrySync returns the configuration-phase registry payloads for
// 1.20.2 and newer, one element per RegistryData packet. 1.20.2 ships
// everything in a single blob; 1.20.5 split it into one packet per
// registry.
func RegistrySync(v protocol.Version) [][]byte {
	if v < protocol.V1_20_5 {
		return [][]byte{nbtRootNetwork(codecMembers(v)...)}
	}

	damage := make([]syncEntry, 0, len(damageTypeNames(v)))
	for _, name := range damageTypeNames(v) {
		damage = append(damage, syncEntry{"minecraft:" + name, damageTypeMembers(name)})
	}

	payloads := [][]byte{
		syncPayload("minecraft:dimension_type", []syncEntry{
			{DimensionKey, dimensionMembers(v)},
		}),
		syncPayload("minecraft:worldgen/biome", []syncEntry{
			{BiomeKey, biomeMembers(v)},
		}),
		syncPayload("minecraft:chat_type", []syncEntry{
			{"minecraft:chat", chatTypeMembers(v)},
		}),
		syncPayload("minecraft:damage_type", damage),
		syncPayload("minecraft:wolf_variant", []syncEntry{
			{"minecraft:pale", [][]byte{
				nbtString("wild_texture", "minecraft:entity/wolf/wolf"),
				nbtString("tame_texture", "minecraft:entity/wolf/wolf_tame"),
				nbtString("angry_texture", "minecraft:entity/wolf/wolf_angry"),
				nbtString("biomes", "minecraft:taiga"),
			}},
		}),
	}
	if v >= protocol.V1_21 {
		payloads = append(payloads, syncPayload("minecraft:painting_variant", []syncEntry{
			{"minecraft:kebab", [][]byte{
				nbtString("asset_id", "minecraft:kebab"),
				nbtInt("height", 1),
				nbtInt("width", 1),
			}},
		}))
	}
	return payloads
}
