// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package openvote implements the two-round anonymous voting protocol of Hao, Ryan
and Zieliński ("Anonymous voting by two-round public discussion", IET
Information Security 4(2), 2010). A group of n voters, each holding a private bit,
learns the number of yes votes without any dealer or tallying authority and
without learning any individual vote.

Round 1: voter i draws a secret x_i, publishes g^x_i and a Schnorr proof of
knowledge of x_i.

Round 2: every voter computes its personal base

	gy_i = (prod_{j<i} g^x_j) / (prod_{j>i} g^x_j)

and publishes gy_i^x_i * g^v_i together with a disjunctive (CDS) proof that
v_i is 0 or 1. Because sum_i x_i*y_i = 0, the product of all round 2 values is
g^(sum v_i), from which the tally follows by searching [0, n].

All proofs are made non-interactive with the Fiat-Shamir heuristic, hashing the
session identifier, the voter index and all commitments. A single failing proof
aborts the session for everyone: the protocol is fail-stop, and restarting
requires fresh secrets.

The broadcast channel is abstracted by the Transport interface; the transport
package provides an in-memory hub and a line-oriented stream transport.
*/
package openvote
